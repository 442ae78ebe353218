package models

import (
	"fmt"

	"github.com/inboxlab/mailbridge/internal/enum"
)

// ConnectionParameters carries per-request credentials and the resolved
// endpoint for one protocol. Instances are ephemeral: derived fresh for each
// request and discarded with it. Password must never reach a log line, a
// span, or an activity payload.
type ConnectionParameters struct {
	Email    string
	Password string
	Host     string
	Port     int
	Security enum.EmailSecurity
}

func (p ConnectionParameters) Address() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}
