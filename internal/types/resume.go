package types

import "fmt"

// ResumeBullet is one normalized resume bullet with the categories the
// classification step associated with it.
type ResumeBullet struct {
	ID                   string   `json:"id"`
	Text                 string   `json:"text"`
	AssociatedCategories []string `json:"associated_categories"`
}

// ResumeDigest is a normalized view of the student's resume. A digest is
// immutable once a session starts; edits produce a new digest version.
type ResumeDigest struct {
	Version       int            `json:"version"`
	Bullets       []ResumeBullet `json:"bullets"`
	ResumeSummary string         `json:"resume_summary"`
}

// Validate checks the digest has at least one bullet and unique bullet ids.
func (d *ResumeDigest) Validate() error {
	if len(d.Bullets) == 0 {
		return fmt.Errorf("resume digest has no bullets")
	}
	seen := make(map[string]bool, len(d.Bullets))
	for i, b := range d.Bullets {
		if b.ID == "" {
			return fmt.Errorf("bullet %d has empty id", i)
		}
		if seen[b.ID] {
			return fmt.Errorf("duplicate bullet id %q", b.ID)
		}
		seen[b.ID] = true
	}
	return nil
}

// Covers reports whether any bullet in the digest is associated with the
// given category.
func (d *ResumeDigest) Covers(category string) bool {
	for _, b := range d.Bullets {
		for _, c := range b.AssociatedCategories {
			if c == category {
				return true
			}
		}
	}
	return false
}
