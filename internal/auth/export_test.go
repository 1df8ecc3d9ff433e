package auth

import "time"

// SetClock overrides the manager's time source.
func (m *TokenManager) SetClock(now func() time.Time) { m.now = now }
