package api

import (
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"lifeboard/domain"
)

// applyCommands runs a batch of accepted commands against the board in
// order. Malformed payloads, unknown command types, and references to
// missing tasks are all silent no-ops; the board's own rules decide what
// sticks.
func applyCommands(board *domain.Board, cmds []domain.Command, logger *log.Logger) {
	for _, cmd := range cmds {
		switch cmd.Type {
		case domain.TaskCreate:
			var data domain.CreateData
			if err := sonic.Unmarshal(cmd.Data, &data); err != nil {
				logger.WithError(err).Debug("skipping malformed task-create")
				continue
			}
			category, ok := domain.ParseCategory(data.Category)
			if !ok {
				continue
			}
			board.Create(data.Text, category)
		case domain.TaskToggle:
			var data domain.ToggleData
			if err := sonic.Unmarshal(cmd.Data, &data); err != nil {
				logger.WithError(err).Debug("skipping malformed task-toggle")
				continue
			}
			board.ToggleComplete(data.ID)
		case domain.TaskDelete:
			var data domain.DeleteData
			if err := sonic.Unmarshal(cmd.Data, &data); err != nil {
				logger.WithError(err).Debug("skipping malformed task-delete")
				continue
			}
			board.SoftDelete(data.ID)
		case domain.TaskReorder:
			var data domain.ReorderData
			if err := sonic.Unmarshal(cmd.Data, &data); err != nil {
				logger.WithError(err).Debug("skipping malformed task-reorder")
				continue
			}
			board.Reorder(data.SourceID, data.TargetID)
		default:
			logger.WithField("type", cmd.Type).Debug("skipping unknown command type")
		}
	}
}
