package domain

// Severity classifies a user-facing notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Notification is a message for the shopper, shown by the UI as a toast.
type Notification struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Shopper-facing messages.
const (
	MsgAddedToCart       = "Produto adicionado ao carrinho!"
	MsgAddedToWishlist   = "Produto adicionado à lista de desejos!"
	MsgRemovedFromWish   = "Produto removido da lista de desejos."
	MsgCheckoutCompleted = "Obrigado pela sua compra! Em breve você receberá mais informações por email."
	MsgEmptyCart         = "Seu carrinho está vazio!"
	MsgProductNotFound   = "Produto não encontrado."
	MsgCheckoutFailed    = "Não foi possível finalizar a compra. Tente novamente."
	MsgSizeUnavailable   = "Tamanho indisponível para este produto."
)

// WishlistShareTitle heads the shared wishlist text.
const WishlistShareTitle = "Minha Lista de Desejos:"
