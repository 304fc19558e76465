package store

import "fmt"

// Key builders for the persisted-state layout. One function per
// table so a grep for a table name finds every read and write of it.

func OrderbookKey(bookID uint64) string {
	return fmt.Sprintf("orderbook/%d", bookID)
}

func DenomPairKey(quoteDenom, baseDenom string) string {
	return fmt.Sprintf("denom_pair_to_book_id/%s/%s", quoteDenom, baseDenom)
}

func OrderKey(bookID uint64, tickID int64, orderID uint64) string {
	return fmt.Sprintf("orders/%d/%d/%d", bookID, tickID, orderID)
}

func OrderIDCounterKey(bookID uint64, tickID int64) string {
	return fmt.Sprintf("order_id_counter/%d/%d", bookID, tickID)
}

func BookIDCounterKey() string {
	return "book_id_counter"
}

func TickStateKey(bookID uint64, tickID int64) string {
	return fmt.Sprintf("tick_state/%d/%d", bookID, tickID)
}

func SumtreeRootKey(bookID uint64, tickID int64, direction string) string {
	return fmt.Sprintf("sumtree_root/%d/%d/%s", bookID, tickID, direction)
}

func SumtreeNodeKey(bookID uint64, tickID int64, direction string, nodeID uint64) string {
	return fmt.Sprintf("sumtree_nodes/%d/%d/%s/%d", bookID, tickID, direction, nodeID)
}

func SumtreeNodeCounterKey(bookID uint64, tickID int64, direction string) string {
	return fmt.Sprintf("sumtree_node_counter/%d/%d/%s", bookID, tickID, direction)
}
