// Package docformat holds the document format allow-list for batch
// translation and the matching upload content types.
package docformat

import (
	"sort"
	"strings"
)

type FormatOption struct {
	Extension   string `json:"extension"`
	Description string `json:"description"`
}

var formatDescriptions = map[string]string{
	".pdf":  "Portable Document Format",
	".docx": "Microsoft Word Document",
	".doc":  "Microsoft Word Document (Legacy)",
	".pptx": "Microsoft PowerPoint Presentation",
	".ppt":  "Microsoft PowerPoint Presentation (Legacy)",
	".xlsx": "Microsoft Excel Spreadsheet",
	".xls":  "Microsoft Excel Spreadsheet (Legacy)",
	".txt":  "Plain Text File",
	".rtf":  "Rich Text Format",
	".html": "HyperText Markup Language",
	".htm":  "HyperText Markup Language",
	".xml":  "eXtensible Markup Language",
	".odt":  "OpenDocument Text",
	".ods":  "OpenDocument Spreadsheet",
	".odp":  "OpenDocument Presentation",
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".ppt":  "application/vnd.ms-powerpoint",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".txt":  "text/plain",
	".rtf":  "application/rtf",
	".html": "text/html",
	".htm":  "text/html",
	".xml":  "application/xml",
}

// Extension returns the lowercase extension of fileName including the dot,
// or an empty string when there is none.
func Extension(fileName string) string {
	dot := strings.LastIndexByte(fileName, '.')
	if dot < 0 {
		return ""
	}
	return strings.ToLower(fileName[dot:])
}

// IsSupported reports whether the file's extension is translatable.
func IsSupported(fileName string) bool {
	_, ok := formatDescriptions[Extension(fileName)]
	return ok
}

// Description returns the human description for a supported file name.
func Description(fileName string) string {
	return formatDescriptions[Extension(fileName)]
}

// ContentType returns the MIME type to use when uploading the document.
// Unknown extensions fall back to application/octet-stream.
func ContentType(fileName string) string {
	if ct, ok := contentTypes[Extension(fileName)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// IsTextual reports whether the format carries plain text that a language
// detector can sample directly.
func IsTextual(fileName string) bool {
	switch Extension(fileName) {
	case ".txt", ".html", ".htm", ".xml":
		return true
	}
	return false
}

// Options lists every supported format sorted by extension.
func Options() []FormatOption {
	exts := make([]string, 0, len(formatDescriptions))
	for ext := range formatDescriptions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)

	options := make([]FormatOption, 0, len(exts))
	for _, ext := range exts {
		options = append(options, FormatOption{
			Extension:   ext,
			Description: formatDescriptions[ext],
		})
	}
	return options
}
