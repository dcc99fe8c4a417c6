package storage

import "testing"

func TestDeniedOrderAccess(t *testing.T) {
	order := PlanOrder{ID: "order-1", UserID: "owner-1", PlanID: "plan-1", Status: "pending"}

	if deniedOrderAccess(order, "owner-1", false) {
		t.Fatal("owner should be allowed to act on their own order")
	}
	if !deniedOrderAccess(order, "someone-else", false) {
		t.Fatal("foreign caller without elevation should be denied")
	}
	if deniedOrderAccess(order, "someone-else", true) {
		t.Fatal("elevated caller should be allowed on any order")
	}
	if deniedOrderAccess(order, "owner-1", true) {
		t.Fatal("elevated owner should be allowed")
	}
}
