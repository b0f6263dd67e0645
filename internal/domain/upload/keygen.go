package upload

import (
	"crypto/rand"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	maxSlugLength      = 80
	maxExtensionLength = 10
	maxFolderSegments  = 4
	// MaxKeyLength bounds keys echoed back by clients.
	MaxKeyLength = 1024
	fallbackSlug = "file"
)

var (
	extensionPattern = regexp.MustCompile(`^[a-z0-9]{1,10}$`)
	keyPattern       = regexp.MustCompile(`^(avatars|courses|chat)/(?:[a-z0-9]+(?:-[a-z0-9]+)*/){0,4}[0-9a-z]{26}-[a-z0-9]+(?:-[a-z0-9]+)*(?:\.[a-z0-9]{1,10})?$`)

	namespaceSurfaces = map[string]Surface{
		"avatars": SurfaceAvatar,
		"courses": SurfaceCourseAsset,
		"chat":    SurfaceChatAttachment,
	}
)

// KeyGenerator produces backend-safe object keys from untrusted file names.
type KeyGenerator struct {
	now func() time.Time
}

// NewKeyGenerator returns a generator backed by crypto/rand entropy.
func NewKeyGenerator() *KeyGenerator {
	return &KeyGenerator{now: time.Now}
}

// Generate builds `<namespace>/[<folder>/]<token>-<slug>[.<ext>]`.
func (g *KeyGenerator) Generate(surface Surface, fileName, contentType, folder string) (string, error) {
	namespace := surface.Namespace()
	if namespace == "" {
		return "", fmt.Errorf("unknown surface %q", surface)
	}

	token, err := ulid.New(ulid.Timestamp(g.now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate key token: %w", err)
	}

	base, ext := splitFileName(fileName)
	if ext == "" {
		ext = extensionFor(contentType)
	}

	var b strings.Builder
	b.WriteString(namespace)
	b.WriteByte('/')
	if f := sanitizeFolder(folder); f != "" {
		b.WriteString(f)
		b.WriteByte('/')
	}
	b.WriteString(strings.ToLower(token.String()))
	b.WriteByte('-')
	b.WriteString(Slugify(base))
	if ext != "" {
		b.WriteByte('.')
		b.WriteString(ext)
	}
	return b.String(), nil
}

// Slugify reduces s to lowercase ASCII letters, digits and single dashes.
func Slugify(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case 'đ', 'Đ':
			return 'd'
		}
		return r
	}, s)

	// transform.Chain keeps state, so each call builds its own.
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripMarks, s); err == nil {
		s = folded
	}
	s = strings.ToLower(s)

	var b strings.Builder
	dash := false
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// splitFileName drops any client path, then separates the base name from a
// usable extension.
func splitFileName(fileName string) (string, string) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), `\`, "/"))
	if name == "." || name == "/" {
		return "", ""
	}
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name, ""
	}
	normalized := strings.ToLower(strings.TrimPrefix(ext, "."))
	if !extensionPattern.MatchString(normalized) {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), normalized
}

func extensionFor(contentType string) string {
	ct, ok := normalizeContentType(contentType)
	if !ok {
		return ""
	}
	m := mimetype.Lookup(ct)
	if m == nil {
		return ""
	}
	ext := strings.TrimPrefix(m.Extension(), ".")
	if len(ext) > maxExtensionLength || !extensionPattern.MatchString(ext) {
		return ""
	}
	return ext
}

func sanitizeFolder(folder string) string {
	segments := make([]string, 0, maxFolderSegments)
	for _, part := range strings.Split(strings.ReplaceAll(folder, `\`, "/"), "/") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		slug := Slugify(part)
		if slug == fallbackSlug && !strings.EqualFold(strings.TrimSpace(part), fallbackSlug) {
			continue
		}
		segments = append(segments, slug)
		if len(segments) == maxFolderSegments {
			break
		}
	}
	return strings.Join(segments, "/")
}

// SurfaceForKey validates a key echoed back by a client and returns the
// surface its namespace belongs to.
func SurfaceForKey(key string) (Surface, bool) {
	if key == "" || len(key) > MaxKeyLength || !keyPattern.MatchString(key) {
		return "", false
	}
	namespace, _, _ := strings.Cut(key, "/")
	surface, ok := namespaceSurfaces[namespace]
	return surface, ok
}
