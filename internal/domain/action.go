package domain

// Action is a UCP operation tag. The set is closed.
type Action string

const (
	ActionDiscover            Action = "discover"
	ActionCreateCheckout      Action = "create_checkout"
	ActionGetCheckout         Action = "get_checkout"
	ActionUpdateCheckout      Action = "update_checkout"
	ActionCompleteCheckout    Action = "complete_checkout"
	ActionCancelCheckout      Action = "cancel_checkout"
	ActionCreateCart          Action = "create_cart"
	ActionAddToCart           Action = "add_to_cart"
	ActionGetCart             Action = "get_cart"
	ActionGetProducts         Action = "get_products"
	ActionGetProduct          Action = "get_product"
	ActionGetCategories       Action = "get_categories"
	ActionGetCategoryProducts Action = "get_category_products"
	ActionSearchProducts      Action = "search_products"
	ActionGetOrder            Action = "get_order"
	ActionWebhook             Action = "webhook"
)

var actions = map[Action]struct{}{
	ActionDiscover:            {},
	ActionCreateCheckout:      {},
	ActionGetCheckout:         {},
	ActionUpdateCheckout:      {},
	ActionCompleteCheckout:    {},
	ActionCancelCheckout:      {},
	ActionCreateCart:          {},
	ActionAddToCart:           {},
	ActionGetCart:             {},
	ActionGetProducts:         {},
	ActionGetProduct:          {},
	ActionGetCategories:       {},
	ActionGetCategoryProducts: {},
	ActionSearchProducts:      {},
	ActionGetOrder:            {},
	ActionWebhook:             {},
}

// ParseAction reports whether s names a known action.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	if _, ok := actions[a]; !ok {
		return "", false
	}
	return a, true
}

func (a Action) Valid() bool {
	_, ok := actions[a]
	return ok
}
