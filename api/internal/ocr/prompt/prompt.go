// Package prompt holds the instructions shared by the vision-model engines and
// turns their answers into old-style pages.
package prompt

import (
	"encoding/json"
	"fmt"

	"ocr-gateway/api/internal/ocr/types"
	"ocr-gateway/api/internal/util"
)

const System = `You are an OCR engine. Find every line of text in the image, top to bottom, left to right.
Return ONLY a JSON array. Each element describes one text line as
  [[[x1,y1],[x2,y2],[x3,y3],[x4,y4]], ["<text>", <confidence>]]
where the four points are the corners of the line's bounding quadrilateral in source image pixels,
clockwise from top-left, and confidence is a number in [0,1].
Copy text verbatim: do not translate, correct spelling or normalize punctuation.
If there is no text, return [].`

const User = "Return the JSON array of text lines."

// DecodeAnswer turns a model answer into a single page. An empty answer means
// no result at all.
func DecodeAnswer(engine, txt string) (*types.RawResult, error) {
	txt = util.StripCodeFences(txt)
	if txt == "" {
		return nil, nil
	}
	if !json.Valid([]byte(txt)) {
		return nil, fmt.Errorf("%s: bad JSON in answer", engine)
	}
	return &types.RawResult{Pages: []types.Page{types.DecodePage(json.RawMessage(txt))}}, nil
}
