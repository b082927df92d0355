// Package models defines the core domain models for GroupLedger.
//
// # Group bookkeeping
//
//   - Group, GroupMember: a set of users sharing expenses, with ADMIN/MEMBER roles
//   - GroupExpense: a shared expense with its lenders (who paid) and splits (who owes)
//   - Settlement: an immutable record of one debtor paying one creditor
//
// # Personal ledger
//
//   - Account: a user's money container; OTHERS and GROUP_LENDING are system helper
//     accounts, one per user, created on first use
//   - Category: expense/income classification; each group owns a "Group Expenses" category
//   - LedgerEntry: an expense, income, lending or borrowing posting against an account
//
// # Feeds
//
//   - Notification: per-user message
//   - Activity: per-group audit trail
//
// Relationships are expressed with ID strings rather than pointers. Amounts are
// float64 in the application's currency unit; timestamps are Unix seconds.
package models
