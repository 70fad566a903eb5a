package models

type MenuItem struct {
	Path  string `json:"path"`
	Label string `json:"label"`
}

// DashboardMenu lists the dashboard entries a role may open.
func DashboardMenu(role Role) []MenuItem {
	switch role {
	case RoleAgent:
		return []MenuItem{
			{Path: "/dashboard/agentProfile", Label: "Agent Profile"},
			{Path: "/dashboard/addProperty", Label: "Add Property"},
			{Path: "/dashboard/myAddedProperties", Label: "My Added Properties"},
			{Path: "/dashboard/mySoldProperty", Label: "My Sold Properties"},
			{Path: "/dashboard/requestedProperty", Label: "Requested Properties"},
		}
	case RoleUser:
		return []MenuItem{
			{Path: "/dashboard/myProfile", Label: "My Profile"},
			{Path: "/dashboard/wishLists", Label: "Wish List"},
			{Path: "/dashboard/propertyBought", Label: "Property Bought"},
			{Path: "/dashboard/myReviews", Label: "My Reviews"},
		}
	case RoleAdmin:
		return []MenuItem{
			{Path: "/dashboard/adminProfile", Label: "Admin Profile"},
			{Path: "/dashboard/manageProperties", Label: "Manage Properties"},
			{Path: "/dashboard/manageUsers", Label: "Manage Users"},
			{Path: "/dashboard/manageReviews", Label: "Manage Reviews"},
			{Path: "/dashboard/advertise-property", Label: "Advertise Property"},
		}
	case RoleGuest:
		return []MenuItem{}
	}
	return []MenuItem{}
}
