package ui

import "sync"

var (
	defaultOnce     sync.Once
	defaultRenderer *Renderer
)

// Default returns the shared stdout renderer with the default theme.
func Default() *Renderer {
	defaultOnce.Do(func() {
		defaultRenderer = NewRenderer(DefaultTheme)
	})
	return defaultRenderer
}

// RenderPass renders text in the success color.
func RenderPass(text string) string { return Default().Pass(text) }

// RenderWarn renders text in the warning color.
func RenderWarn(text string) string { return Default().Warn(text) }

// RenderFail renders text in the failure color.
func RenderFail(text string) string { return Default().Fail(text) }

// RenderAccent renders text in the header color.
func RenderAccent(text string) string {
	r := Default()
	return r.lip.NewStyle().Foreground(r.theme.HeaderForeground).Bold(true).Render(text)
}
