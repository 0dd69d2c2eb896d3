package auth

import "time"

// SetClock replaces the time source used to issue and check tokens.
func (m *JWTManager) SetClock(now func() time.Time) {
	m.now = now
}
