package ocr

import (
	"log/slog"
	"strings"

	"ocr-gateway/api/internal/ocr/types"
)

const maxLoggedRaw = 256

// Normalize flattens a raw engine result into lines and joined text.
//
// New-style pages only yield text: their scores and polygons are not reliably
// co-indexed with rec_texts across engine versions. Old-style entries keep
// score and box. Unreadable pages and entries are logged and skipped; a nil
// result is an empty response.
func Normalize(log *slog.Logger, raw *types.RawResult) types.Result {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	res := types.Result{Lines: []types.Line{}}
	if raw == nil {
		return res
	}

	for pi, page := range raw.Pages {
		switch page.Kind {
		case types.PageDict:
			log.Debug("parsing page", "page", pi, "style", "new", "texts", len(page.Texts))
			for _, text := range page.Texts {
				if text == "" {
					continue
				}
				res.Lines = append(res.Lines, types.Line{Text: text})
			}
		case types.PageList:
			log.Debug("parsing page", "page", pi, "style", "old", "entries", len(page.Entries))
			for ei, d := range page.Entries {
				if d.Malformed {
					log.Warn("unexpected item format in old-style page", "page", pi, "entry", ei, "raw", clip(d.Raw))
					continue
				}
				if d.Text == "" {
					continue
				}
				res.Lines = append(res.Lines, lineFromDetection(d))
			}
		default:
			log.Warn("unexpected page shape, skipping", "page", pi, "raw", clip(page.Raw))
		}
	}

	texts := make([]string, len(res.Lines))
	for i, l := range res.Lines {
		texts[i] = l.Text
	}
	res.Text = strings.Join(texts, "\n")
	return res
}

func lineFromDetection(d types.Detection) types.Line {
	line := types.Line{Text: d.Text}
	if d.Score != nil {
		s := *d.Score
		line.Score = &s
	}
	if len(d.Box) > 0 {
		line.Box = append([]types.Point(nil), d.Box...)
	}
	return line
}

func clip(b []byte) string {
	if len(b) > maxLoggedRaw {
		return string(b[:maxLoggedRaw]) + "…"
	}
	return string(b)
}
