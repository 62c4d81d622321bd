package fsref

import "fmt"

// ConvertAliasToBookmark decodes a legacy alias record and re-encodes the same
// reference as a bookmark.
func ConvertAliasToBookmark(alias []byte) ([]byte, error) {
	a, err := DecodeAlias(alias)
	if err != nil {
		return nil, err
	}
	b, err := FromAlias(a)
	if err != nil {
		return nil, err
	}
	out, err := EncodeBookmark(b)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bookmark for %q: %w", b.Path, err)
	}
	return out, nil
}

// ResolveBookmark returns the absolute path a bookmark refers to.
func ResolveBookmark(bookmark []byte) (string, error) {
	b, err := DecodeBookmark(bookmark)
	if err != nil {
		return "", err
	}
	return b.Path, nil
}
