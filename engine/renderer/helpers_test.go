package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scene/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

type recordingLogger struct {
	debug    bool
	warnings []string
	errors   []string
}

func (l *recordingLogger) DebugEnabled() bool { return l.debug }
func (l *recordingLogger) SetDebug(enabled bool) { l.debug = enabled }
func (l *recordingLogger) Debugf(string, ...any) {}
func (l *recordingLogger) Infof(string, ...any) {}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func (l *recordingLogger) Errorf(format string, args ...any) {
	l.errors = append(l.errors, fmt.Sprintf(format, args...))
}

type fakeDrawable struct {
	node    transform.NodeID
	geom    Geometry
	visible bool
	drawErr error
	draws   int
}

func (d *fakeDrawable) Node() transform.NodeID { return d.node }
func (d *fakeDrawable) Geometry() Geometry { return d.geom }
func (d *fakeDrawable) WorldMatrix() mgl32.Mat4 { return mgl32.Ident4() }
func (d *fakeDrawable) Visible() bool { return d.visible }
func (d *fakeDrawable) ExtraBindGroups() []ExtraBindGroup { return nil }

func (d *fakeDrawable) Draw(pass RenderPass, lights BindGroupHandle) error {
	d.draws++
	if d.drawErr != nil {
		return d.drawErr
	}
	pass.SetBindGroup(0, lights, nil)
	DrawGeometry(pass, d.geom)
	return nil
}
