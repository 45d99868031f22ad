// Package main provides a TCP query server for LineDB.
package main

import (
	"github.com/goccy/go-json"

	"github.com/nickyhof/LineDB/db"
)

// Response is written back for every request line.
type Response struct {
	Success  bool        `json:"success"`
	Status   string      `json:"status"`
	Report   string      `json:"report,omitempty"`
	Columns  []string    `json:"columns,omitempty"`
	Rows     [][]*string `json:"rows,omitempty"`
	Error    string      `json:"error,omitempty"`
	Type     string      `json:"type,omitempty"` // "query", "save" or "auth"
	Identity string      `json:"identity,omitempty"`
	TimeMs   float64     `json:"time_ms"`
}

func failResponse(kind, message string) Response {
	return Response{
		Success: false,
		Status:  db.FAIL.String(),
		Error:   message,
		Report:  message,
		Type:    kind,
	}
}

// responseFromResult lays the rows out by Result.Columns. Null elements
// and columns a row does not carry are both null.
func responseFromResult(result db.Result) Response {
	resp := Response{
		Success: result.Status == db.OK,
		Status:  result.Status.String(),
		Report:  result.Report,
		Type:    "query",
		TimeMs:  result.ExecutionTimeSec * 1000,
	}
	if result.Status == db.FAIL {
		resp.Error = result.Report
		return resp
	}

	resp.Columns = result.Columns()
	for _, row := range result.Rows {
		values := make([]*string, len(resp.Columns))
		for i, name := range resp.Columns {
			if element := row.Element(name); element != nil {
				values[i] = element.Raw()
			}
		}
		resp.Rows = append(resp.Rows, values)
	}
	return resp
}

// EncodeResponse serializes a Response to JSON with a newline.
func EncodeResponse(resp Response) ([]byte, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses one response line.
func DecodeResponse(data []byte) (Response, error) {
	var resp Response
	err := json.Unmarshal(data, &resp)
	return resp, err
}
