package api

import (
    "bytes"
    "encoding/json"
    "errors"
    "fmt"
    "io"
    "strconv"

    "priceboard/internal/classify"
)

// decodeHoldings reads a /prices body. Only unparseable JSON is an error: an
// empty body counts as {}, a body that is not an object or whose holdings is
// not an array yields no requests, and items that are not objects are skipped.
func decodeHoldings(r io.Reader) ([]classify.Request, error) {
    raw, err := io.ReadAll(r)
    if err != nil {
        return nil, fmt.Errorf("read body: %w", err)
    }
    if len(bytes.TrimSpace(raw)) == 0 {
        return nil, nil
    }

    dec := json.NewDecoder(bytes.NewReader(raw))
    var doc json.RawMessage
    if err := dec.Decode(&doc); err != nil {
        return nil, err
    }
    if err := dec.Decode(new(json.RawMessage)); !errors.Is(err, io.EOF) {
        return nil, errors.New("trailing data after JSON value")
    }

    var body struct {
        Holdings json.RawMessage `json:"holdings"`
    }
    if json.Unmarshal(doc, &body) != nil {
        return nil, nil
    }
    var items []json.RawMessage
    if json.Unmarshal(body.Holdings, &items) != nil {
        return nil, nil
    }

    out := make([]classify.Request, 0, len(items))
    for _, item := range items {
        var fields map[string]json.RawMessage
        if json.Unmarshal(item, &fields) != nil || fields == nil {
            continue
        }
        out = append(out, classify.Request{
            Symbol: scalarString(fields["symbol"]),
            Type:   scalarString(fields["type"]),
        })
    }
    return out, nil
}

// scalarString renders a JSON scalar the way a loose client would send it:
// strings verbatim, numbers by value, true as "true". Missing, null, false,
// zero and non-scalar values read as "".
func scalarString(v json.RawMessage) string {
    if len(v) == 0 {
        return ""
    }
    var x any
    if json.Unmarshal(v, &x) != nil {
        return ""
    }
    switch t := x.(type) {
    case string:
        return t
    case float64:
        if t == 0 { return "" }
        return strconv.FormatFloat(t, 'f', -1, 64)
    case bool:
        if t { return "true" }
        return ""
    default:
        return ""
    }
}
