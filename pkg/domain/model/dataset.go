package model

import (
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// DefaultDatasetRef is the dataset fetched when nothing else is configured
const DefaultDatasetRef = "paultimothymooney/chest-xray-pneumonia"

// ArchiveExtension is the suffix of a downloaded dataset archive
const ArchiveExtension = ".zip"

// DatasetRef identifies a dataset as owner/slug with an optional version number
type DatasetRef struct {
	Owner   string
	Slug    string
	Version int // 0 means latest
}

// ParseDatasetRef parses "owner/slug" or "owner/slug/version"
func ParseDatasetRef(s string) (DatasetRef, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 2 && len(parts) != 3 {
		return DatasetRef{}, goerr.New("dataset must be in owner/slug[/version] format",
			goerr.V("dataset", s))
	}

	ref := DatasetRef{Owner: parts[0], Slug: parts[1]}
	if ref.Owner == "" || ref.Slug == "" {
		return DatasetRef{}, goerr.New("dataset owner and slug must not be empty",
			goerr.V("dataset", s))
	}

	if len(parts) == 3 {
		version, err := strconv.Atoi(parts[2])
		if err != nil || version <= 0 {
			return DatasetRef{}, goerr.New("dataset version must be a positive integer",
				goerr.V("dataset", s),
				goerr.V("version", parts[2]))
		}
		ref.Version = version
	}

	return ref, nil
}

// String returns the reference in owner/slug[/version] form
func (r DatasetRef) String() string {
	if r.Version > 0 {
		return r.Owner + "/" + r.Slug + "/" + strconv.Itoa(r.Version)
	}
	return r.Owner + "/" + r.Slug
}

// ArchiveName returns the file name the downloaded archive is stored under
func (r DatasetRef) ArchiveName() string {
	return r.Slug + ArchiveExtension
}

// Dataset is the metadata record returned by the dataset API
type Dataset struct {
	Ref         string `json:"ref"`
	Title       string `json:"title"`
	TotalBytes  int64  `json:"totalBytes"`
	URL         string `json:"url"`
	LastUpdated string `json:"lastUpdated"`
}

// Credentials holds the API account identifier and key read from kaggle.json
type Credentials struct {
	Username string `json:"username"`
	Key      string `json:"key" masq:"secret"`
}
