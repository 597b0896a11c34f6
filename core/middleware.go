package core

import (
	"net/http"
	"sync"
)

// ResponseInterceptor observes a response received through a Transport. It
// must not read or close the body and cannot replace the response.
type ResponseInterceptor func(req *http.Request, resp *http.Response)

// Transport is the shared request function of the application. Every API
// call goes through it so cross-cutting observers can react to responses.
type Transport struct {
	// Base performs the actual round trip (default http.DefaultTransport)
	Base http.RoundTripper

	mu           sync.RWMutex
	nextID       uint64
	interceptors []registeredInterceptor
}

type registeredInterceptor struct {
	id uint64
	fn ResponseInterceptor
}

// NewTransport creates a transport around base. A nil base uses
// http.DefaultTransport.
func NewTransport(base http.RoundTripper) *Transport {
	return &Transport{Base: base}
}

// RegisterResponseInterceptor adds fn to the interceptor chain. The returned
// function removes it again and may be called more than once.
func (t *Transport) RegisterResponseInterceptor(fn ResponseInterceptor) (unregister func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.interceptors = append(t.interceptors, registeredInterceptor{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			for i, ri := range t.interceptors {
				if ri.id == id {
					t.interceptors = append(t.interceptors[:i:i], t.interceptors[i+1:]...)
					return
				}
			}
		})
	}
}

// RoundTrip implements http.RoundTripper. Responses are handed to every
// registered interceptor and then returned unchanged; transport errors are
// returned as is without running interceptors.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base().RoundTrip(req)
	if err != nil {
		return resp, err
	}

	t.mu.RLock()
	chain := make([]registeredInterceptor, len(t.interceptors))
	copy(chain, t.interceptors)
	t.mu.RUnlock()

	for _, ri := range chain {
		ri.fn(req, resp)
	}

	return resp, nil
}

// Client returns an http.Client that sends requests through t.
func (t *Transport) Client() *http.Client {
	return &http.Client{Transport: t}
}

func (t *Transport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}
