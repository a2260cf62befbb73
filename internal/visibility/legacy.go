package visibility

import (
	"context"
	"strings"

	"shiptrack-service/internal/docstore"
	"shiptrack-service/internal/domain"
	"shiptrack-service/internal/lifecycle"
	"shiptrack-service/internal/logx"
)

// legacyPrefix is the tag an earlier design prepended to the receiver's
// email to encode archive state. That encoding conflated identity with
// visibility; this module only reads it back out.
const legacyPrefix = "archived-"

// NormalizeLegacyEmails rewrites any tagged receiver email into the
// flag form: the plain email is restored and receiverArchived is set in
// the same update. Returns the number of records migrated. One-shot
// administrative path.
func (l *Ledger) NormalizeLegacyEmails(ctx context.Context) (int, error) {
	recs, err := l.store.Query(ctx, lifecycle.Collection)
	if err != nil {
		return 0, err
	}

	migrated := 0
	for _, rec := range recs {
		raw, ok := docstore.Lookup(rec.Doc, domain.FieldReceiverEmail)
		if !ok {
			continue
		}
		email, ok := raw.(string)
		if !ok || !strings.HasPrefix(email, legacyPrefix) {
			continue
		}

		plain := strings.TrimPrefix(email, legacyPrefix)
		fields := map[string]any{
			domain.FieldReceiverEmail:    plain,
			domain.FieldReceiverArchived: true,
		}
		// Pin the tagged value so a concurrent migrator cannot re-tag.
		pre := docstore.Eq(domain.FieldReceiverEmail, email)
		if err := l.store.Update(ctx, lifecycle.Collection, rec.ID, fields, pre); err != nil {
			continue
		}

		migrated++
		l.logger.Info("legacy receiver email normalized",
			logx.String("event", "legacy_email_normalized"),
			logx.String("shipment_id", rec.ID),
		)
	}
	return migrated, nil
}
