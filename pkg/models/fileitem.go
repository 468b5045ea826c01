// Package models defines the shared data types for breadbox state stores:
// file listing entries, clipboard, sort/filter configuration, and the
// per-store snapshot records that get persisted.
package models

// FileItem represents one file or directory entry in a listing.
// URI is the identity: two items with the same name but different URIs are
// distinct, and the store never deduplicates by name.
type FileItem struct {
	Name        string `json:"name"`
	URI         string `json:"uri"`
	IsDirectory bool   `json:"is_directory"`

	// Optional numeric metadata, as supplied by the listing layer.
	// Pointers distinguish "absent" from zero.
	Size             *int64 `json:"size,omitempty"`
	ModificationTime *int64 `json:"modification_time,omitempty"`
	LastAccessed     *int64 `json:"last_accessed,omitempty"`

	// Favorite/locked flags are authoritative only in the store's own
	// favorites set; these mirrors are carried as given.
	IsFavorite *bool `json:"is_favorite,omitempty"`
	IsLocked   *bool `json:"is_locked,omitempty"`

	Permissions  *Permissions `json:"permissions,omitempty"`
	Tags         []string     `json:"tags,omitempty"`
	MimeType     string       `json:"mime_type,omitempty"`
	ThumbnailURI string       `json:"thumbnail_uri,omitempty"`
}

// Permissions is an optional read/write/execute triple.
type Permissions struct {
	Read    bool `json:"read"`
	Write   bool `json:"write"`
	Execute bool `json:"execute"`
}

// Clone returns a deep copy of the item.
func (f FileItem) Clone() FileItem {
	out := f
	out.Size = cloneInt64(f.Size)
	out.ModificationTime = cloneInt64(f.ModificationTime)
	out.LastAccessed = cloneInt64(f.LastAccessed)
	out.IsFavorite = cloneBool(f.IsFavorite)
	out.IsLocked = cloneBool(f.IsLocked)
	if f.Permissions != nil {
		p := *f.Permissions
		out.Permissions = &p
	}
	out.Tags = cloneStrings(f.Tags)
	return out
}

// cloneStrings copies a slice, preserving nil-ness: an empty non-nil slice
// stays empty non-nil so clones stay deep-equal to their originals.
func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

// CloneFileItems deep-copies a listing.
func CloneFileItems(items []FileItem) []FileItem {
	if items == nil {
		return nil
	}
	out := make([]FileItem, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// ClipboardMode designates what a paste should do with the clipboard files.
type ClipboardMode string

const (
	ClipboardNone ClipboardMode = "none"
	ClipboardCopy ClipboardMode = "copy"
	ClipboardCut  ClipboardMode = "cut"
)

// Clipboard holds the pending copy/cut set. At most one mode is active at a
// time; every assignment replaces the previous contents wholesale.
type Clipboard struct {
	Type  ClipboardMode `json:"type"`
	Files []string      `json:"files"`
}

// Clone returns a deep copy of the clipboard.
func (c Clipboard) Clone() Clipboard {
	out := c
	out.Files = cloneStrings(c.Files)
	return out
}

// SortField selects the listing sort key.
type SortField string

const (
	SortByName SortField = "name"
	SortByDate SortField = "date"
	SortBySize SortField = "size"
	SortByType SortField = "type"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortOptions is the current sort configuration.
type SortOptions struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Filters narrows the listing. Values are stored exactly as supplied;
// validation is the caller's responsibility.
type Filters struct {
	Name      string `json:"name,omitempty"`
	Extension string `json:"extension,omitempty"`
	MinSize   *int64 `json:"min_size,omitempty"`
	MaxSize   *int64 `json:"max_size,omitempty"`
	DateFrom  *int64 `json:"date_from,omitempty"`
	DateTo    *int64 `json:"date_to,omitempty"`
}

// Clone returns a deep copy of the filters.
func (f Filters) Clone() Filters {
	out := f
	out.MinSize = cloneInt64(f.MinSize)
	out.MaxSize = cloneInt64(f.MaxSize)
	out.DateFrom = cloneInt64(f.DateFrom)
	out.DateTo = cloneInt64(f.DateTo)
	return out
}

// FilterType restricts the listing to files, folders, or everything.
type FilterType string

const (
	FilterAll     FilterType = "all"
	FilterFiles   FilterType = "files"
	FilterFolders FilterType = "folders"
)

// ViewMode is the listing presentation preference.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
