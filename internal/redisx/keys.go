package redisx

// Channel cart:updated:{session} carries the full line set after every
// successful cart mutation, so listeners (cart badge, open tabs) can
// refresh without re-querying.
const KeyCartUpdated = "cart:updated:%s"
