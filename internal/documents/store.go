package documents

import (
	"errors"

	"github.com/soleilcom/gestion/internal/shared"
)

// DraftStore keeps one draft per kind in the visitor's session.
type DraftStore struct{}

func draftKey(kind Kind) string {
	return "draft:" + string(kind)
}

// Load returns the session draft, or a new empty one.
func (DraftStore) Load(sess *shared.Session, kind Kind) (*Draft, error) {
	if sess == nil {
		return nil, errors.New("documents: session missing")
	}
	var d Draft
	ok, err := sess.GetJSON(draftKey(kind), &d)
	if err != nil {
		// Corrupt drafts are dropped.
		sess.Delete(draftKey(kind))
		return NewDraft(kind), err
	}
	if !ok || d.Kind != kind {
		return NewDraft(kind), nil
	}
	return &d, nil
}

// Save persists the draft.
func (DraftStore) Save(sess *shared.Session, d *Draft) error {
	if sess == nil {
		return errors.New("documents: session missing")
	}
	return sess.SetJSON(draftKey(d.Kind), d)
}

// Clear discards the draft of kind.
func (DraftStore) Clear(sess *shared.Session, kind Kind) {
	if sess != nil {
		sess.Delete(draftKey(kind))
	}
}
