package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CartMutations counts successful cart and wishlist mutations by operation.
	CartMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_cart_mutations_total",
			Help: "Total number of cart and wishlist mutations",
		},
		[]string{"op"},
	)

	// Checkouts counts checkout attempts by result.
	Checkouts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_checkouts_total",
			Help: "Total number of checkout attempts",
		},
		[]string{"result"},
	)

	// PersistenceWriteFailures counts snapshot writes that failed and were dropped.
	PersistenceWriteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_persistence_write_failures_total",
			Help: "Total number of snapshot writes that failed",
		},
		[]string{"collection"},
	)

	// LiveSessions is the number of sessions held in memory.
	LiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_live_sessions",
			Help: "Number of sessions currently held in memory",
		},
	)
)

// Mutation labels.
const (
	OpAddToCart      = "add_to_cart"
	OpRemoveFromCart = "remove_from_cart"
	OpUpdateQuantity = "update_quantity"
	OpClearCart      = "clear_cart"
	OpToggleWishlist = "toggle_wishlist"
	OpClearWishlist  = "clear_wishlist"
)

// Checkout result labels.
const (
	CheckoutCompleted = "completed"
	CheckoutEmptyCart = "empty_cart"
	CheckoutFailed    = "failed"
)
