// Package billing holds the pure pricing rules of the lesson billing engine:
// effective plan rates, group and company discounts, currency normalisation
// and the per-payer price of a lesson. Nothing here touches storage; the
// service layer feeds it hydrated models and persists the results.
//
// All amounts are fixed-point decimals rounded half away from zero to two
// places at every price boundary.
package billing
