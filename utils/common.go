package utils

// UNITTOL bounds the deviation of probability row sums from one
const UNITTOL = 1.e-6
