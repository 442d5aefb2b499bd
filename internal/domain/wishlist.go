package domain

// Wishlist is an ordered set of product ids in insertion order.
type Wishlist struct {
	IDs []int

	// removed and removedAt remember the last removal, so toggling the same
	// product straight back restores its position instead of appending it.
	removed   int
	removedAt int
}

// Contains reports whether the product is on the wishlist.
func (w *Wishlist) Contains(productID int) bool {
	return w.indexOf(productID) >= 0
}

// Toggle adds the product if absent and removes it if present. It returns
// the membership after the call.
func (w *Wishlist) Toggle(productID int) bool {
	if i := w.indexOf(productID); i >= 0 {
		w.IDs = append(w.IDs[:i], w.IDs[i+1:]...)
		w.removed, w.removedAt = productID, i
		return false
	}

	at := len(w.IDs)
	if w.removed == productID && w.removedAt <= len(w.IDs) {
		at = w.removedAt
	}
	w.IDs = append(w.IDs, 0)
	copy(w.IDs[at+1:], w.IDs[at:])
	w.IDs[at] = productID
	w.forget()
	return true
}

// Clear empties the wishlist.
func (w *Wishlist) Clear() {
	w.IDs = nil
	w.forget()
}

// Len returns the number of products on the wishlist.
func (w *Wishlist) Len() int {
	return len(w.IDs)
}

// Snapshot returns a copy of the ids, never nil.
func (w *Wishlist) Snapshot() []int {
	out := make([]int, len(w.IDs))
	copy(out, w.IDs)
	return out
}

func (w *Wishlist) forget() {
	w.removed, w.removedAt = 0, 0
}

func (w *Wishlist) indexOf(productID int) int {
	for i, id := range w.IDs {
		if id == productID {
			return i
		}
	}
	return -1
}

// WishlistView is what the renderer shows for the wishlist.
type WishlistView struct {
	Products []Product `json:"products"`
	Count    int       `json:"count"`
}
