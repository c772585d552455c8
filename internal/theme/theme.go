package theme

type Theme interface {
	RenderNote(lane int, long bool) string
	RenderHitField(lane int, active bool) string
}
