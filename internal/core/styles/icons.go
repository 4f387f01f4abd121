package styles

// Status markers. Plain unicode so they render without a patched font.
var (
	IconCompleted  = "✓"
	IconInProgress = "◐"
	IconNotStarted = "○"
	IconLocked     = "🔒"
	IconReady      = "✓"
	IconMissing    = "✗"
	IconBullet     = "•"
	IconArrow      = "→"
	IconCalendar   = "📅"
)
