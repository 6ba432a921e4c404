//go:build !sonic

package jsonx

import "github.com/goccy/go-json"

var Marshal = json.Marshal
var Unmarshal = json.Unmarshal
