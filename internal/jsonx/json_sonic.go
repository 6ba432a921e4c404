//go:build sonic

package jsonx

import "github.com/bytedance/sonic"

var Marshal = sonic.Marshal
var Unmarshal = sonic.Unmarshal
