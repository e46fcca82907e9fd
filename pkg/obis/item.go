package obis

import "sync"

// Item is a single measurement channel as last seen on the wire.
// Items are owned by a Store and updated in place every parse cycle.
type Item struct {
	key   Key
	value Value
	unit  *Unit

	codeOnce sync.Once
	code     string
}

func (i *Item) Key() Key     { return i.key }
func (i *Item) Value() Value { return i.value }

// Unit returns the bound unit, or nil if the channel never reported one.
func (i *Item) Unit() *Unit { return i.unit }

// Code returns "a.b.c". It is built on first request and cached.
func (i *Item) Code() string {
	i.codeOnce.Do(func() { i.code = i.key.Code() })
	return i.code
}

func (i *Item) setValue(v Value) {
	i.value = v
}

// bindUnit sets the unit once. The unit of an OBIS code is fixed by the
// meter so later assignments are ignored.
func (i *Item) bindUnit(u *Unit) bool {
	if i.unit != nil || u == nil {
		return false
	}
	i.unit = u
	return true
}

// ItemView is the read-only shape handed to consumers of the store.
type ItemView struct {
	Key   Key
	Code  string
	Value Value
	Unit  string
}

func (i *Item) View() ItemView {
	return ItemView{
		Key:   i.key,
		Code:  i.Code(),
		Value: i.value,
		Unit:  i.unit.String(),
	}
}
