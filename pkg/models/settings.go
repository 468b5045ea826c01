package models

// Theme is the application color scheme preference.
type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// GeneralSettings is the snapshot record of the general-settings store.
type GeneralSettings struct {
	Theme              Theme    `json:"theme"`
	Language           string   `json:"language"`
	ConfirmDelete      bool     `json:"confirm_delete"`
	ShowFileExtensions bool     `json:"show_file_extensions"`
	DefaultView        ViewMode `json:"default_view"`
	RememberLastPath   bool     `json:"remember_last_path"`
}

// DefaultGeneralSettings returns the initial general settings.
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		Theme:              ThemeSystem,
		Language:           "en",
		ConfirmDelete:      true,
		ShowFileExtensions: true,
		DefaultView:        ViewGrid,
		RememberLastPath:   true,
	}
}

// DownloadLocation is one named download target. At most one location is the
// default; DownloadStore.SetDefaultLocation maintains that.
type DownloadLocation struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Default bool   `json:"default"`
}

// DownloadSettings is the snapshot record of the download-settings store.
type DownloadSettings struct {
	Directory     string             `json:"directory"`
	WifiOnly      bool               `json:"wifi_only"`
	MaxConcurrent int                `json:"max_concurrent"`
	AutoResume    bool               `json:"auto_resume"`
	Locations     []DownloadLocation `json:"locations"`
}

// DefaultDownloadSettings returns the initial download settings.
func DefaultDownloadSettings() DownloadSettings {
	return DownloadSettings{
		Directory:     "/downloads",
		WifiOnly:      false,
		MaxConcurrent: 3,
		AutoResume:    true,
		Locations:     []DownloadLocation{},
	}
}

// Clone returns a deep copy of the settings.
func (d DownloadSettings) Clone() DownloadSettings {
	out := d
	if d.Locations != nil {
		out.Locations = make([]DownloadLocation, len(d.Locations))
		copy(out.Locations, d.Locations)
	}
	return out
}
