package client

import "sync"

// ConnectionStatus has two flags that have nothing to do with each other: our
// channel to the server, and the server's link to the dice board.
type ConnectionStatus struct {
	Transport  bool `json:"transport"`
	Peripheral bool `json:"peripheral"`
}

// Links holds the ConnectionStatus and tells subscribers when it changes.
type Links struct {
	mu   sync.Mutex
	st   ConnectionStatus
	subs map[int]func(ConnectionStatus)
	next int
}

func NewLinks() *Links {
	return &Links{subs: map[int]func(ConnectionStatus){}}
}

func (l *Links) Get() ConnectionStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.st
}

func (l *Links) SetTransport(up bool) {
	l.update(func(st *ConnectionStatus) { st.Transport = up })
}

func (l *Links) SetPeripheral(up bool) {
	l.update(func(st *ConnectionStatus) { st.Peripheral = up })
}

// Subscribe calls fn on every change, until the returned func is called.
func (l *Links) Subscribe(fn func(ConnectionStatus)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.next
	l.next++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

func (l *Links) update(f func(*ConnectionStatus)) {
	l.mu.Lock()
	old := l.st
	f(&l.st)
	st := l.st
	subs := make([]func(ConnectionStatus), 0, len(l.subs))
	for _, fn := range l.subs {
		subs = append(subs, fn)
	}
	l.mu.Unlock()

	if st == old {
		return
	}
	for _, fn := range subs {
		fn(st)
	}
}
