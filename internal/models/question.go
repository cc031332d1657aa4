package models

// LocalizedText maps a language code ("en", "de", ...) to display text.
type LocalizedText map[string]string

// DefaultLanguage is used when a requested translation is missing.
const DefaultLanguage = "en"

// In returns the text for the given language, falling back to the default
// language and then to any available translation.
func (t LocalizedText) In(lang string) string {
	if s, ok := t[lang]; ok && s != "" {
		return s
	}
	if s, ok := t[DefaultLanguage]; ok && s != "" {
		return s
	}
	for _, s := range t {
		if s != "" {
			return s
		}
	}
	return ""
}

type Option struct {
	Text LocalizedText `bson:"text" json:"text"`
}

// Question is an immutable definition supplied by the question bank.
type Question struct {
	ID            string        `bson:"_id,omitempty" json:"id"`
	DeckID        string        `bson:"deck_id" json:"deck_id"`
	Prompt        LocalizedText `bson:"prompt" json:"prompt"`
	Options       []Option      `bson:"options" json:"options"`
	CorrectOption int           `bson:"correct_option" json:"correct_option"`
	ImageURL      string        `bson:"image_url,omitempty" json:"image_url,omitempty"`
	OrderIndex    int           `bson:"order_index" json:"order_index"`
	XPReward      int           `bson:"xp_reward" json:"xp_reward"`
}

// DefaultXPReward applies when a question document carries no explicit reward.
const DefaultXPReward = 10

// XP returns the experience points awarded for a correct answer.
func (q *Question) XP() int {
	if q.XPReward > 0 {
		return q.XPReward
	}
	return DefaultXPReward
}

// HasOption reports whether idx addresses one of the question's options.
func (q *Question) HasOption(idx int) bool {
	return idx >= 0 && idx < len(q.Options)
}

// QuestionView is the client-facing shape of a question: all text resolved
// to one language, the correct option withheld.
type QuestionView struct {
	ID       string   `json:"id"`
	DeckID   string   `json:"deck_id"`
	Prompt   string   `json:"prompt"`
	Options  []string `json:"options"`
	ImageURL string   `json:"image_url,omitempty"`
	XPReward int      `json:"xp_reward"`
}

// View resolves the question's text for the given language.
func (q *Question) View(lang string) QuestionView {
	options := make([]string, len(q.Options))
	for i, o := range q.Options {
		options[i] = o.Text.In(lang)
	}
	return QuestionView{
		ID:       q.ID,
		DeckID:   q.DeckID,
		Prompt:   q.Prompt.In(lang),
		Options:  options,
		ImageURL: q.ImageURL,
		XPReward: q.XP(),
	}
}
