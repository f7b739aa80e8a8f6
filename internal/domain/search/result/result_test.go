package result

import "testing"

func TestNew(t *testing.T) {
	m := New(620, 3)

	if m.ItemID() != 620 {
		t.Errorf("ItemID() = %d", m.ItemID())
	}
	if m.Score() != 3 {
		t.Errorf("Score() = %f", m.Score())
	}
}
