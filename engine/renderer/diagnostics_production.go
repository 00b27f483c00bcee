//go:build production

package renderer

const diagnosticsEnabled = false
