package repoargs

type RepositoryName string

const (
	CustomerRepoName          RepositoryName = "customer"
	ReservationRepoName       RepositoryName = "credit_reservation"
	CreditTransactionRepoName RepositoryName = "credit_transaction"
	CartRepoName              RepositoryName = "cart"
	OrderRepoName             RepositoryName = "order"
)
