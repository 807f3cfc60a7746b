package web

import (
	"reflect"

	"github.com/zamyatin-zkex/cancelwatch/internal/entity"
)

type msg struct {
	mType int
	data  []byte
	err   error
}

type BaseMessage struct {
	Name    string
	Payload any
}

func NewMessage(payload any) BaseMessage {
	return BaseMessage{
		Name:    reflect.TypeOf(payload).Name(),
		Payload: payload,
	}
}

type CompanyView struct {
	Company   string
	Excessive bool
	Window    *entity.Window `json:",omitempty"`
}

type companiesResponse struct {
	Companies []string `json:"companies"`
}

type countResponse struct {
	Count int `json:"count"`
}

type errResponse struct {
	Error string `json:"error"`
}
