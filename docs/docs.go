// Package docs holds the OpenAPI document served under /swagger. It follows
// the layout swag init emits; keep it in step with the handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/bookings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Create booking (idempotent)",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateBookingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Booking"}, "headers": {"Idempotency-Key": {"type": "string", "description": "echo"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "own listing", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "slot unavailable / idem in progress", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/bookings/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "List bookings made by the caller",
                "parameters": [
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.BookingSummary"}}}}
            }
        },
        "/api/bookings/preview-price": {
            "post": {
                "summary": "Preview booking price",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.PreviewPriceRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/pricing.Breakdown"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "rate limited", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/bookings/provider": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "List bookings on the caller's listings",
                "parameters": [
                    {"type": "integer", "description": "page size", "name": "limit", "in": "query"},
                    {"type": "integer", "description": "offset", "name": "offset", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.BookingSummary"}}}}
            }
        },
        "/api/bookings/slots/{listingId}": {
            "get": {
                "summary": "Free 15-minute slots on a day",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "listingId", "in": "path", "required": true},
                    {"type": "string", "description": "YYYY-MM-DD (UTC), defaults to today", "name": "date", "in": "query"},
                    {"type": "string", "description": "Sub-slot ID (uuid)", "name": "sub_slot_id", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.SlotsResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/bookings/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "Get booking",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/bookings/{id}/cancel": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "description": "Full refund when cancelled at least 24h before start, none otherwise.",
                "summary": "Cancel booking",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/custody/{bookingId}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "Custody status",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "bookingId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/custody.View"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/custody/{bookingId}/generate-qr": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Issue a one-time QR token for the next custody step",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "bookingId", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/custody.TokenGrant"}},
                    "403": {"description": "not the provider", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "cancelled / completed", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/custody/{bookingId}/scan": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Redeem a scanned QR token",
                "parameters": [
                    {"type": "string", "description": "Booking ID (uuid)", "name": "bookingId", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.ScanRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Booking"}},
                    "400": {"description": "invalid token", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "not the seeker", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "429": {"description": "too many attempts", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/listings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Create listing",
                "parameters": [
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateListingRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.Listing"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/listings/user/mine": {
            "get": {
                "security": [{"BearerAuth": []}],
                "summary": "List the caller's listings",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.OwnedListing"}}}}
            }
        },
        "/api/listings/{id}": {
            "get": {
                "summary": "Get listing with its sub-slots",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ListingDetail"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "summary": "Update listing",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.UpdateListingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Listing"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "summary": "Delete listing",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/httpgin.DeletedResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "409": {"description": "active bookings", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/listings/{id}/split": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Shrinks the listing and publishes the freed area as a new child listing.",
                "summary": "Split a storage listing",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.SplitRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/listing.SplitResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        },
        "/api/listings/{id}/subslots": {
            "post": {
                "security": [{"BearerAuth": []}],
                "summary": "Add a bookable sub-slot",
                "parameters": [
                    {"type": "string", "description": "Listing ID (uuid)", "name": "id", "in": "path", "required": true},
                    {"description": "payload", "name": "req", "in": "body", "required": true, "schema": {"$ref": "#/definitions/httpgin.CreateSubSlotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/domain.SubSlot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/httpgin.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "custody.TokenGrant": {
            "type": "object",
            "properties": {
                "action": {"type": "string", "enum": ["handover", "return"]},
                "bookingId": {"type": "string"},
                "custody_state": {"type": "string", "enum": ["Pending", "In-Custody", "Completed"]},
                "scanToken": {"type": "string"}
            }
        },
        "custody.View": {
            "type": "object",
            "properties": {
                "completed_at": {"type": "string"},
                "custody_state": {"type": "string", "enum": ["Pending", "In-Custody", "Completed"]},
                "handed_over_at": {"type": "string"},
                "id": {"type": "string"},
                "status": {"type": "string", "enum": ["confirmed", "in_custody", "cancelled", "completed"]},
                "token_issued": {"type": "boolean"}
            }
        },
        "domain.Booking": {
            "type": "object",
            "properties": {
                "completed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "custody_state": {"type": "string", "enum": ["Pending", "In-Custody", "Completed"]},
                "duration_minutes": {"type": "integer"},
                "end_time": {"type": "string"},
                "handed_over_at": {"type": "string"},
                "id": {"type": "string"},
                "item_description": {"type": "string"},
                "item_photos": {"type": "array", "items": {"type": "string"}},
                "listing_id": {"type": "string"},
                "provider_id": {"type": "string"},
                "refund_amount": {"type": "number"},
                "refund_percent": {"type": "integer"},
                "seeker_id": {"type": "string"},
                "start_time": {"type": "string"},
                "status": {"type": "string", "enum": ["confirmed", "in_custody", "cancelled", "completed"]},
                "sub_slot_id": {"type": "string"},
                "total_price": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.BookingSummary": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "completed_at": {"type": "string"},
                "created_at": {"type": "string"},
                "custody_state": {"type": "string", "enum": ["Pending", "In-Custody", "Completed"]},
                "duration_minutes": {"type": "integer"},
                "end_time": {"type": "string"},
                "handed_over_at": {"type": "string"},
                "id": {"type": "string"},
                "image_url": {"type": "string"},
                "item_description": {"type": "string"},
                "item_photos": {"type": "array", "items": {"type": "string"}},
                "listing_id": {"type": "string"},
                "listing_title": {"type": "string"},
                "listing_type": {"type": "string", "enum": ["storage", "parking"]},
                "provider_id": {"type": "string"},
                "refund_amount": {"type": "number"},
                "refund_percent": {"type": "integer"},
                "seeker_id": {"type": "string"},
                "start_time": {"type": "string"},
                "status": {"type": "string", "enum": ["confirmed", "in_custody", "cancelled", "completed"]},
                "sub_slot_id": {"type": "string"},
                "total_price": {"type": "number"},
                "updated_at": {"type": "string"}
            }
        },
        "domain.Interval": {
            "type": "object",
            "properties": {
                "end": {"type": "string"},
                "start": {"type": "string"}
            }
        },
        "domain.Listing": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "has_cctv": {"type": "boolean"},
                "has_ev_charge": {"type": "boolean"},
                "has_locker": {"type": "boolean"},
                "has_security_guard": {"type": "boolean"},
                "height_ft": {"type": "number"},
                "id": {"type": "string"},
                "image_url": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_waterproof": {"type": "boolean"},
                "latitude": {"type": "number"},
                "length_ft": {"type": "number"},
                "longitude": {"type": "number"},
                "owner_id": {"type": "string"},
                "parent_listing_id": {"type": "string"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "subtypes": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["storage", "parking"]},
                "updated_at": {"type": "string"},
                "vehicle_type": {"type": "string", "enum": ["2-wheeler", "4-wheeler"]},
                "width_ft": {"type": "number"}
            }
        },
        "domain.ListingDetail": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "has_cctv": {"type": "boolean"},
                "has_ev_charge": {"type": "boolean"},
                "has_locker": {"type": "boolean"},
                "has_security_guard": {"type": "boolean"},
                "height_ft": {"type": "number"},
                "id": {"type": "string"},
                "image_url": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_waterproof": {"type": "boolean"},
                "latitude": {"type": "number"},
                "length_ft": {"type": "number"},
                "longitude": {"type": "number"},
                "owner_id": {"type": "string"},
                "parent_listing_id": {"type": "string"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "sub_slots": {"type": "array", "items": {"$ref": "#/definitions/domain.SubSlot"}},
                "subtypes": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["storage", "parking"]},
                "updated_at": {"type": "string"},
                "vehicle_type": {"type": "string", "enum": ["2-wheeler", "4-wheeler"]},
                "width_ft": {"type": "number"}
            }
        },
        "domain.OwnedListing": {
            "type": "object",
            "properties": {
                "active_bookings": {"type": "integer"},
                "address": {"type": "string"},
                "created_at": {"type": "string"},
                "description": {"type": "string"},
                "has_cctv": {"type": "boolean"},
                "has_ev_charge": {"type": "boolean"},
                "has_locker": {"type": "boolean"},
                "has_security_guard": {"type": "boolean"},
                "height_ft": {"type": "number"},
                "id": {"type": "string"},
                "image_url": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_waterproof": {"type": "boolean"},
                "latitude": {"type": "number"},
                "length_ft": {"type": "number"},
                "longitude": {"type": "number"},
                "owner_id": {"type": "string"},
                "parent_listing_id": {"type": "string"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "subtypes": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "type": {"type": "string", "enum": ["storage", "parking"]},
                "updated_at": {"type": "string"},
                "vehicle_type": {"type": "string", "enum": ["2-wheeler", "4-wheeler"]},
                "width_ft": {"type": "number"}
            }
        },
        "domain.SubSlot": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "height_ft": {"type": "number"},
                "id": {"type": "string"},
                "is_active": {"type": "boolean"},
                "label": {"type": "string"},
                "length_ft": {"type": "number"},
                "listing_id": {"type": "string"},
                "width_ft": {"type": "number"}
            }
        },
        "httpgin.CreateBookingRequest": {
            "type": "object",
            "required": ["end_time", "listing_id", "start_time"],
            "properties": {
                "end_time": {"type": "string"},
                "item_description": {"type": "string"},
                "item_photos": {"type": "array", "items": {"type": "string"}},
                "listing_id": {"type": "string"},
                "start_time": {"type": "string"},
                "sub_slot_id": {"type": "string"}
            }
        },
        "httpgin.CreateListingRequest": {
            "type": "object",
            "required": ["title", "type"],
            "properties": {
                "address": {"type": "string"},
                "description": {"type": "string"},
                "has_cctv": {"type": "boolean"},
                "has_ev_charge": {"type": "boolean"},
                "has_locker": {"type": "boolean"},
                "has_security_guard": {"type": "boolean"},
                "height_ft": {"type": "number"},
                "image_url": {"type": "string"},
                "is_waterproof": {"type": "boolean"},
                "latitude": {"type": "number"},
                "length_ft": {"type": "number"},
                "longitude": {"type": "number"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "subtypes": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "type": {"type": "string"},
                "vehicle_type": {"type": "string"},
                "width_ft": {"type": "number"}
            }
        },
        "httpgin.CreateSubSlotRequest": {
            "type": "object",
            "required": ["label"],
            "properties": {
                "height_ft": {"type": "number"},
                "label": {"type": "string"},
                "length_ft": {"type": "number"},
                "width_ft": {"type": "number"}
            }
        },
        "httpgin.DeletedResponse": {
            "type": "object",
            "properties": {
                "deleted": {"type": "string"}
            }
        },
        "httpgin.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"}
            }
        },
        "httpgin.PreviewPriceRequest": {
            "type": "object",
            "required": ["end_time", "listing_id", "start_time"],
            "properties": {
                "end_time": {"type": "string"},
                "listing_id": {"type": "string"},
                "start_time": {"type": "string"}
            }
        },
        "httpgin.ScanRequest": {
            "type": "object",
            "required": ["scanToken"],
            "properties": {
                "scanToken": {"type": "string"}
            }
        },
        "httpgin.SlotsResponse": {
            "type": "object",
            "properties": {
                "date": {"type": "string"},
                "listing_id": {"type": "string"},
                "slots": {"type": "array", "items": {"$ref": "#/definitions/domain.Interval"}},
                "sub_slot_id": {"type": "string"}
            }
        },
        "httpgin.SplitRequest": {
            "type": "object",
            "properties": {
                "new_length_ft": {"type": "number"},
                "new_width_ft": {"type": "number"}
            }
        },
        "httpgin.UpdateListingRequest": {
            "type": "object",
            "properties": {
                "address": {"type": "string"},
                "description": {"type": "string"},
                "has_cctv": {"type": "boolean"},
                "has_ev_charge": {"type": "boolean"},
                "has_locker": {"type": "boolean"},
                "has_security_guard": {"type": "boolean"},
                "height_ft": {"type": "number"},
                "image_url": {"type": "string"},
                "is_active": {"type": "boolean"},
                "is_waterproof": {"type": "boolean"},
                "latitude": {"type": "number"},
                "length_ft": {"type": "number"},
                "longitude": {"type": "number"},
                "photos": {"type": "array", "items": {"type": "string"}},
                "subtypes": {"type": "array", "items": {"type": "string"}},
                "title": {"type": "string"},
                "vehicle_type": {"type": "string"},
                "width_ft": {"type": "number"}
            }
        },
        "listing.SplitResult": {
            "type": "object",
            "properties": {
                "original": {"$ref": "#/definitions/domain.Listing"},
                "remainder": {"$ref": "#/definitions/domain.Listing"}
            }
        },
        "pricing.Breakdown": {
            "type": "object",
            "properties": {
                "area": {"type": "number"},
                "base_rate": {"type": "number"},
                "blocks": {"type": "integer"},
                "decay": {"type": "number"},
                "effective_rate": {"type": "number"},
                "kind": {"type": "string", "enum": ["storage", "parking"]},
                "minutes": {"type": "integer"},
                "parking_type": {"type": "string"},
                "per_block": {"type": "number"},
                "savings_percent": {"type": "integer"},
                "total": {"type": "number"},
                "vehicle_type": {"type": "string", "enum": ["2-wheeler", "4-wheeler"]}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Stow API",
	Description:      "Booking, pricing and custody for shared storage and parking spaces.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
