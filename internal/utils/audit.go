package utils

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"dryfruit_back_end/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
)

const (
	ActionProductCreate = "product.create"
	ActionProductUpdate = "product.update"
	ActionProductDelete = "product.delete"
	ActionProductImage  = "product.image"
	ActionStockAdjust   = "stock.adjust"

	ActionOrderUpdate = "order.update"
	ActionOrderRefund = "order.refund"
	ActionOrderDelete = "order.delete"

	ActionCouponCreate = "coupon.create"
	ActionCouponUpdate = "coupon.update"
	ActionCouponDelete = "coupon.delete"

	ActionUserRole       = "user.role"
	ActionMessageUpdate  = "message.update"
	ActionMessageDelete  = "message.delete"
	ActionSettingsUpdate = "settings.update"
	ActionBlogCreate     = "blog.create"

	ActionAdminLogin       = "auth.admin_login"
	ActionAdminLoginFailed = "auth.admin_login_failed"
	ActionAdminLogout      = "auth.admin_logout"
)

const (
	ResourceProduct   = "product"
	ResourceInventory = "inventory"
	ResourceOrder     = "order"
	ResourceCoupon    = "coupon"
	ResourceUser      = "user"
	ResourceMessage   = "message"
	ResourceSettings  = "settings"
	ResourceBlog      = "blog"
	ResourceAuth      = "auth"
)

const auditDayLayout = "2006-01-02"

// Auditor appends admin actions to the ScyllaDB audit_logs table. A nil
// session turns it into a log-only recorder.
type Auditor struct {
	session *gocql.Session
}

func NewAuditor(session *gocql.Session) *Auditor {
	return &Auditor{session: session}
}

func (a *Auditor) Enabled() bool { return a != nil && a.session != nil }

func (a *Auditor) LogAction(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}) {
	a.record(newAuditLog(c, action, resource, resourceID, oldValue, newValue, true, ""))
}

func (a *Auditor) LogFailedAction(c *gin.Context, action, resource, resourceID, errorMsg string) {
	a.record(newAuditLog(c, action, resource, resourceID, nil, nil, false, errorMsg))
}

// newAuditLog reads everything from the request up front; the gin context
// is recycled once the handler returns.
func newAuditLog(c *gin.Context, action, resource, resourceID string, oldValue, newValue interface{}, success bool, errorMsg string) models.AuditLog {
	return models.AuditLog{
		ID:         gocql.TimeUUID(),
		UserID:     c.GetString("user_id"),
		UserEmail:  c.GetString("email"),
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		OldValue:   marshalValue(oldValue),
		NewValue:   marshalValue(newValue),
		IPAddress:  c.ClientIP(),
		UserAgent:  c.GetHeader("User-Agent"),
		Success:    success,
		ErrorMsg:   errorMsg,
		Timestamp:  time.Now().UTC(),
	}
}

func (a *Auditor) record(entry models.AuditLog) {
	if !a.Enabled() {
		log.Printf("📝 audit %s %s/%s by %s success=%v", entry.Action, entry.Resource, entry.ResourceID, entry.UserEmail, entry.Success)
		return
	}
	go func() {
		if err := a.insert(entry); err != nil {
			log.Printf("❌ Audit log insert failed: %v", err)
		}
	}()
}

func (a *Auditor) insert(e models.AuditLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.session.Query(`
		INSERT INTO audit_logs (
			day, id, user_id, user_email, action, resource, resource_id,
			old_value, new_value, ip_address, user_agent, success,
			error_msg, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Timestamp.Format(auditDayLayout), e.ID, e.UserID, e.UserEmail, e.Action,
		e.Resource, e.ResourceID, e.OldValue, e.NewValue,
		e.IPAddress, e.UserAgent, e.Success, e.ErrorMsg, e.Timestamp,
	).WithContext(ctx).Exec()
}

// List returns the newest entries for one UTC day (YYYY-MM-DD).
func (a *Auditor) List(ctx context.Context, day string, limit int) ([]models.AuditLog, error) {
	if !a.Enabled() {
		return []models.AuditLog{}, nil
	}
	if day == "" {
		day = time.Now().UTC().Format(auditDayLayout)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	iter := a.session.Query(`
		SELECT id, user_id, user_email, action, resource, resource_id,
		       old_value, new_value, ip_address, user_agent, success, error_msg, timestamp
		FROM audit_logs WHERE day = ? LIMIT ?`, day, limit).WithContext(ctx).Iter()

	logs := []models.AuditLog{}
	var e models.AuditLog
	for iter.Scan(&e.ID, &e.UserID, &e.UserEmail, &e.Action, &e.Resource, &e.ResourceID,
		&e.OldValue, &e.NewValue, &e.IPAddress, &e.UserAgent, &e.Success, &e.ErrorMsg, &e.Timestamp) {
		logs = append(logs, e)
		e = models.AuditLog{}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return logs, nil
}

func marshalValue(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
