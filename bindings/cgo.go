package main

/*
#include <stdlib.h>
*/
import "C"
import (
	"context"
	"sync"
	"unsafe"

	"github.com/goccy/go-json"

	"github.com/nickyhof/LineDB"
	"github.com/nickyhof/LineDB/core"
	"github.com/nickyhof/LineDB/db"
)

var bindingIdentity = core.Identity{
	Name:  "LineDB",
	Email: "bindings@linedb.local",
}

var (
	handlesMu  sync.Mutex
	handles    = make(map[int]*db.Database)
	nextHandle = 1
)

// Response mirrors the server protocol for consistency
type Response struct {
	Success bool        `json:"success"`
	Status  string      `json:"status,omitempty"`
	Report  string      `json:"report,omitempty"`
	Error   string      `json:"error,omitempty"`
	Columns []string    `json:"columns,omitempty"`
	Rows    [][]*string `json:"rows,omitempty"`
	TimeMs  float64     `json:"time_ms"`
}

func register(database *db.Database) C.int {
	handlesMu.Lock()
	defer handlesMu.Unlock()

	handle := nextHandle
	nextHandle++
	handles[handle] = database
	return C.int(handle)
}

func lookup(handle C.int) (*db.Database, bool) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	database, ok := handles[int(handle)]
	return database, ok
}

//export linedb_open_memory
func linedb_open_memory() C.int {
	return register(LineDB.OpenMemory(db.WithIdentity(bindingIdentity)))
}

// linedb_open returns -1 when the location exists but cannot be loaded.
//
//export linedb_open
func linedb_open(path *C.char) C.int {
	database, err := LineDB.Open(context.Background(), C.GoString(path), db.WithIdentity(bindingIdentity))
	if err != nil {
		return -1
	}
	return register(database)
}

//export linedb_close
func linedb_close(handle C.int) {
	handlesMu.Lock()
	defer handlesMu.Unlock()
	delete(handles, int(handle))
}

//export linedb_query
func linedb_query(handle C.int, query *C.char) *C.char {
	database, ok := lookup(handle)
	if !ok {
		return makeErrorResponse("Invalid handle")
	}

	return makeResponse(responseFromResult(database.Query(C.GoString(query))))
}

func responseFromResult(result db.Result) Response {
	resp := Response{
		Success: result.OK(),
		Status:  result.Status.String(),
		Report:  result.Report,
		TimeMs:  result.ExecutionTimeSec * 1000,
	}
	if !result.OK() {
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

//export linedb_save
func linedb_save(handle C.int, path *C.char) *C.char {
	database, ok := lookup(handle)
	if !ok {
		return makeErrorResponse("Invalid handle")
	}

	if path != nil {
		if location := C.GoString(path); location != "" {
			database.SetFilePath(location)
		}
	}
	if err := database.Save(context.Background()); err != nil {
		return makeErrorResponse(err.Error())
	}
	return makeResponse(Response{Success: true, Status: db.OK.String(), Report: "Saved to " + database.FilePath()})
}

//export linedb_free
func linedb_free(ptr *C.char) {
	C.free(unsafe.Pointer(ptr))
}

func makeResponse(resp Response) *C.char {
	jsonData, _ := json.Marshal(resp)
	return C.CString(string(jsonData))
}

func makeErrorResponse(msg string) *C.char {
	return makeResponse(Response{
		Success: false,
		Status:  db.FAIL.String(),
		Error:   msg,
	})
}

func main() {}
