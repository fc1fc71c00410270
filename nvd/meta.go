package nvd

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/nvd-search/utils"
)

// Meta is the content of a segment's .meta file.
//
//	lastModifiedDate:2018-02-09T03:01:51-05:00
//	size:2052012
//	zipSize:104950
//	gzSize:104814
//	sha256:E8B5A5B8...
type Meta struct {
	LastModifiedDate time.Time
	ZipSize          int64
	SHA256           string
}

func ParseMeta(b []byte) (Meta, error) {
	var meta Meta
	scanner := bufio.NewScanner(bytes.NewReader(b))
	for scanner.Scan() {
		line := utils.TrimSpaceNewline(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch key {
		case "lastModifiedDate":
			meta.LastModifiedDate, _ = dateparse.ParseAny(value)
		case "zipSize":
			meta.ZipSize, _ = strconv.ParseInt(value, 10, 64)
		case "sha256":
			meta.SHA256 = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return Meta{}, xerrors.Errorf("failed to scan meta: %w", err)
	}
	if meta.SHA256 == "" {
		return Meta{}, xerrors.New("sha256 not found in meta")
	}
	return meta, nil
}
