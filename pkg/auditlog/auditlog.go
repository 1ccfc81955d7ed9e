package auditlog

import (
	"go.uber.org/zap"

	"github.com/ChrisHK/system-monitor-sub001/internal/auditlog"
	"github.com/ChrisHK/system-monitor-sub001/pkg/models"
)

type Auditlog struct {
	r   *auditlog.AuditLogRepository
	log *zap.Logger
}

type Auditable interface {
	CreateLogView() models.AuditLog
}

// Log records an action against a resource. Audit failures are logged and
// swallowed; a move must never roll back because its audit insert failed.
func (a *Auditlog) Log(action string, data interface{}, item Auditable) {
	entry := item.CreateLogView()
	entry.Action = action

	if err := a.r.PersistLog(entry, data); err != nil {
		a.log.Warn("unable to create audit log entry",
			zap.Int("resource_id", entry.ResourceID),
			zap.String("resource_type", entry.ResourceType),
			zap.String("action", action),
			zap.Error(err),
		)
		return
	}

	a.log.Debug("audit log entry created",
		zap.Int("resource_id", entry.ResourceID),
		zap.String("action", action),
	)
}

// History returns every recorded action for one resource, newest first.
func (a *Auditlog) History(resourceID int, resourceType string) (*[]models.AuditLog, error) {
	return a.r.GetResourceLog(resourceID, resourceType)
}

func NewAuditLog(repository *auditlog.AuditLogRepository, log *zap.Logger) *Auditlog {
	return &Auditlog{r: repository, log: log}
}
