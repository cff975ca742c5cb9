package catalog

import (
	"github.com/ariefcatur/go-order-overlay/internal/ident"
	"github.com/ariefcatur/go-order-overlay/internal/orders"
	"github.com/ariefcatur/go-order-overlay/internal/users"
)

// Built-in sample data served when the remote cannot be read, so the
// console never comes up empty. Each call returns fresh values.

func SampleProducts() []orders.Product {
	return []orders.Product{
		{
			ID: 1, Title: "Fjallraven - Foldsack No. 1 Backpack, Fits 15 Laptops", Price: 109.95,
			Description: "Your perfect pack for everyday use and walks in the forest.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/81fPKd-2AYL._AC_SL1500_.jpg",
			Rating: &orders.Rating{Rate: 3.9, Count: 120},
		},
		{
			ID: 2, Title: "Mens Casual Premium Slim Fit T-Shirts", Price: 22.3,
			Description: "Slim-fitting style, contrast raglan long sleeve, three-button henley placket.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/71-3HjGNDUL._AC_SY879._SX._UX._SY._UY_.jpg",
			Rating: &orders.Rating{Rate: 4.1, Count: 259},
		},
		{
			ID: 3, Title: "Mens Cotton Jacket", Price: 55.99,
			Description: "Great outerwear jackets for Spring, Autumn and Winter.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/71li-ujtlUL._AC_UX679_.jpg",
			Rating: &orders.Rating{Rate: 4.7, Count: 500},
		},
		{
			ID: 4, Title: "Mens Casual Slim Fit", Price: 15.99,
			Description: "The color could be slightly different between on the screen and in practice.",
			Category:    "men's clothing", Image: "https://fakestoreapi.com/img/71YXzeOuslL._AC_UY879_.jpg",
			Rating: &orders.Rating{Rate: 2.1, Count: 430},
		},
		{
			ID: 5, Title: "John Hardy Women's Legends Naga Gold & Silver Dragon Station Chain Bracelet", Price: 695,
			Description: "From our Legends Collection, the Naga was inspired by the mythical water dragon.",
			Category:    "jewelery", Image: "https://fakestoreapi.com/img/71pWzhdJNwL._AC_UL640_QL65_ML3_.jpg",
			Rating: &orders.Rating{Rate: 4.6, Count: 400},
		},
	}
}

func SampleUsers() []users.User {
	return []users.User{
		{
			ID: 1, Email: "john@gmail.com", Username: "johnd", Password: "m38rmF$",
			Name: users.Name{Firstname: "John", Lastname: "Doe"},
			Address: &users.Address{
				City: "kilcoole", Street: "7835 new road", Number: 3, Zipcode: "12926-3874",
				Geolocation: users.Geolocation{Lat: "-37.3159", Long: "81.1496"},
			},
			Phone: "1-570-236-7033",
		},
		{
			ID: 2, Email: "morrison@gmail.com", Username: "mor_2314", Password: "83r5^_",
			Name: users.Name{Firstname: "David", Lastname: "Morrison"},
			Address: &users.Address{
				City: "Cullman", Street: "5292 new road", Number: 3, Zipcode: "29576-1332",
				Geolocation: users.Geolocation{Lat: "-50.1500", Long: "-50.2340"},
			},
			Phone: "1-570-236-7033",
		},
		{
			ID: 3, Email: "kevin@gmail.com", Username: "kevinryan", Password: "kev02937@",
			Name: users.Name{Firstname: "Kevin", Lastname: "Ryan"},
			Address: &users.Address{
				City: "San Antonio", Street: "3329 new road", Number: 3, Zipcode: "54243-1332",
				Geolocation: users.Geolocation{Lat: "-40.1500", Long: "50.2340"},
			},
			Phone: "1-567-094-1345",
		},
	}
}

func SampleOrders() []orders.Order {
	line := func(pid, qty int) orders.LineItem {
		return orders.LineItem{ProductID: ident.ID(pid), Quantity: qty}
	}
	return []orders.Order{
		{ID: 1, UserID: 1, Date: "2020-03-02T00:00:00.000Z", Products: []orders.LineItem{line(1, 4), line(2, 1), line(3, 6)}},
		{ID: 2, UserID: 1, Date: "2020-01-02T00:00:00.000Z", Products: []orders.LineItem{line(2, 4), line(1, 10), line(5, 2)}},
		{ID: 3, UserID: 2, Date: "2020-03-01T00:00:00.000Z", Products: []orders.LineItem{line(1, 2), line(4, 1)}},
	}
}
