package event

// Calendar describes one calendar source an event can live in.
type Calendar struct {
	UID         string `json:"uid"`
	Name        string `json:"name"`
	AccountName string `json:"accountName,omitempty"`
	ParentUID   string `json:"parentUid,omitempty"`
	Backend     string `json:"backend,omitempty"`
	Color       string `json:"color,omitempty"`
	Selected    bool   `json:"selected"`
	Enabled     bool   `json:"enabled"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
}
