package ion

import (
	"os"
	"time"

	"github.com/google/uuid"
)

// Session identifies one interactive run of the shell with something more
// stable than a pid (teacher's session.go, unchanged in shape). It is kept
// on the Shell; background job labels and history rows do not carry it.
type Session struct {
	StartTime time.Time
	UserID    int
	UserName  string
	MachineID string
	SessionID string
}

// NewSession captures the environment's identity at shell boot.
func NewSession() *Session {
	return &Session{
		StartTime: time.Now(),
		UserID:    os.Getuid(),
		UserName:  os.Getenv("USER"),
		MachineID: os.Getenv("HOSTNAME"),
		SessionID: uuid.New().String(),
	}
}
