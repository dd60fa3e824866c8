package tree

import (
	"math"
	"strconv"
	"strings"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// Extension returns the lower-cased suffix after the last dot of name.
// Names without a dot, dotfiles like ".env" and names ending in a dot have
// no extension.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx <= 0 || idx == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[idx+1:])
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FormatSize renders a byte count with base-1024 units and at most two
// decimals, e.g. "2 KB" or "4.88 MB".
func FormatSize(bytes int64) string {
	if bytes <= 0 {
		return "0 Bytes"
	}
	v := float64(bytes)
	i := 0
	for v >= 1024 && i < len(sizeUnits)-1 {
		v /= 1024
		i++
	}
	v = math.Round(v*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + sizeUnits[i]
}

// Category is the icon family of an item.
type Category string

const (
	CategoryFolder      Category = "folder"
	CategoryImage       Category = "image"
	CategoryVideo       Category = "video"
	CategoryAudio       Category = "audio"
	CategoryCode        Category = "code"
	CategoryDocument    Category = "document"
	CategorySpreadsheet Category = "spreadsheet"
	CategoryArchive     Category = "archive"
	CategoryFile        Category = "file"
)

var categoryByExt = buildCategories(map[Category][]string{
	CategoryImage:       {"jpg", "jpeg", "png", "gif", "svg", "webp", "bmp"},
	CategoryVideo:       {"mp4", "avi", "mov", "wmv", "flv", "webm", "mkv"},
	CategoryAudio:       {"mp3", "wav", "flac", "aac", "ogg", "m4a"},
	CategoryCode:        {"js", "jsx", "ts", "tsx", "html", "css", "py", "java", "cpp", "c", "php", "rb", "go", "rs"},
	CategoryDocument:    {"txt", "md", "doc", "docx", "pdf", "rtf"},
	CategorySpreadsheet: {"xls", "xlsx", "csv"},
	CategoryArchive:     {"zip", "rar", "7z", "tar", "gz", "bz2"},
})

func buildCategories(in map[Category][]string) map[string]Category {
	out := make(map[string]Category)
	for cat, exts := range in {
		for _, ext := range exts {
			out[ext] = cat
		}
	}
	return out
}

// CategoryOf picks the icon family for an item.
func CategoryOf(item models.Item) Category {
	if item.IsDir() {
		return CategoryFolder
	}
	if cat, ok := categoryByExt[strings.ToLower(item.Extension)]; ok {
		return cat
	}
	return CategoryFile
}
