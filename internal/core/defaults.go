package core

// DefaultCategories returns the categories every fresh store is seeded with.
func DefaultCategories() []Category {
	return []Category{
		{ID: "1", Name: "Salary", Kind: Income, Color: "#4CAF50"},
		{ID: "2", Name: "Freelance", Kind: Income, Color: "#8BC34A"},
		{ID: "3", Name: "Investments", Kind: Income, Color: "#CDDC39"},
		{ID: "4", Name: "Other Income", Kind: Income, Color: "#FFC107"},
		{ID: "5", Name: "Housing", Kind: Expense, Color: "#FF5722"},
		{ID: "6", Name: "Utilities", Kind: Expense, Color: "#F44336"},
		{ID: "7", Name: "Groceries", Kind: Expense, Color: "#E91E63"},
		{ID: "8", Name: "Food & Drinks", Kind: Expense, Color: "#9C27B0"},
		{ID: "9", Name: "Transportation", Kind: Expense, Color: "#673AB7"},
		{ID: "10", Name: "Entertainment", Kind: Expense, Color: "#3F51B5"},
		{ID: "11", Name: "Shopping", Kind: Expense, Color: "#2196F3"},
		{ID: "12", Name: "Health", Kind: Expense, Color: "#03A9F4"},
		{ID: "13", Name: "Subscriptions", Kind: Expense, Color: "#00BCD4"},
		{ID: "14", Name: "Other Expenses", Kind: Expense, Color: "#009688"},
	}
}
