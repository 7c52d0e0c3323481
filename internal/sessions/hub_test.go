package sessions

import "github.com/bastionmc/kitsync/internal/logger"

func newTestHub() *Hub {
	return NewHub(logger.NewNop())
}
