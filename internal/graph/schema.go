package graph

const schemaSDL = `
schema {
	query: Query
	mutation: Mutation
}

scalar Time
scalar Decimal

type Query {
	hello: String!
	customer(id: ID!): Customer
	customers(search: String, page: Int, pageSize: Int): CustomerPage!
	products(search: String, page: Int, pageSize: Int): ProductPage!
	order(id: ID!): Order
	orders(orderDateGte: Time, customerId: ID, first: Int, after: String): OrderPage!
}

type Mutation {
	createCustomer(name: String!, email: String!, phone: String): CreateCustomerPayload!
	bulkCreateCustomers(customers: [CustomerInput!]!): BulkCreateCustomersPayload!
	createProduct(name: String!, price: Float!, stock: Int): CreateProductPayload!
	createOrder(customerId: ID!, productIds: [ID!]!, orderDate: Time): CreateOrderPayload!
}

input CustomerInput {
	name: String!
	email: String!
	phone: String
}

type Customer {
	id: ID!
	name: String!
	email: String!
	phone: String
	createdAt: Time!
	orders(first: Int, after: String): OrderPage!
}

type Product {
	id: ID!
	name: String!
	price: Decimal!
	stock: Int!
	createdAt: Time!
}

type Order {
	id: ID!
	customer: Customer!
	products: [Product!]!
	lines: [OrderLine!]!
	totalAmount: Decimal!
	orderDate: Time!
}

type OrderLine {
	product: Product!
	unitPrice: Decimal!
}

type CustomerPage {
	items: [Customer!]!
	total: Int!
	page: Int!
	pageSize: Int!
	totalPages: Int!
}

type ProductPage {
	items: [Product!]!
	total: Int!
	page: Int!
	pageSize: Int!
	totalPages: Int!
}

type OrderPage {
	items: [Order!]!
	nextCursor: String
	hasMore: Boolean!
}

type CreateCustomerPayload {
	customer: Customer
	message: String!
	errors: [String!]!
	success: Boolean!
}

type BulkCreateCustomersPayload {
	customers: [Customer!]!
	errors: [String!]!
	success: Boolean!
}

type CreateProductPayload {
	product: Product
	message: String!
	errors: [String!]!
	success: Boolean!
}

type CreateOrderPayload {
	order: Order
	message: String!
	errors: [String!]!
	success: Boolean!
}
`
