// Package emails defines the structured email records produced by an
// extraction run and their export encodings.
package emails

// Record is one extracted email. Every field is optional: the model omits
// fields it cannot find in the source text, and partially filled records are
// valid intermediate states during streaming.
type Record struct {
	Date    string `json:"date,omitempty"`
	Sender  string `json:"sender,omitempty"`
	Subject string `json:"subject,omitempty"`
	Preview string `json:"preview,omitempty"`
	Body    string `json:"body,omitempty"`
}

// FieldNames is the canonical field order used for tabular exports.
var FieldNames = []string{"date", "sender", "subject", "preview", "body"}

// values returns the record's fields in FieldNames order.
func (r Record) values() []string {
	return []string{r.Date, r.Sender, r.Subject, r.Preview, r.Body}
}

// Collection is an ordered list of records, in order of appearance in the
// source text. Records are appended during streaming and mutated in place;
// positions never change once assigned.
type Collection []Record

// Clone returns an independent copy of the collection.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Merge combines a newer snapshot with its predecessor, enforcing the
// monotonic-fill contract: a field populated in prev stays populated unless
// next carries a non-empty replacement (last write wins per field), and
// records already appended keep their positions. A next shorter than prev
// never drops records.
func Merge(prev, next Collection) Collection {
	n := len(next)
	if len(prev) > n {
		n = len(prev)
	}
	out := make(Collection, n)
	for i := range out {
		switch {
		case i >= len(next):
			out[i] = prev[i]
		case i >= len(prev):
			out[i] = next[i]
		default:
			out[i] = mergeRecord(prev[i], next[i])
		}
	}
	return out
}

func mergeRecord(prev, next Record) Record {
	return Record{
		Date:    pick(prev.Date, next.Date),
		Sender:  pick(prev.Sender, next.Sender),
		Subject: pick(prev.Subject, next.Subject),
		Preview: pick(prev.Preview, next.Preview),
		Body:    pick(prev.Body, next.Body),
	}
}

func pick(prev, next string) string {
	if next != "" {
		return next
	}
	return prev
}
