package models

// All lists every table owned by the service, parents first
func All() []interface{} {
	return []interface{}{
		&Group{},
		&User{},
		&UserNotifPreference{},
		&Payment{},
		&PaymentShare{},
		&Debt{},
		&ChatMessage{},
		&ShoppingList{},
		&Item{},
		&ProductSuggestion{},
		&ScheduledTask{},
		&ScheduledTaskHistory{},
	}
}
