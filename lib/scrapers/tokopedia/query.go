package tokopedia

// The full search query sent to the SearchProductV5 endpoint. The
// desktop web client sends the whole document, trimming it changes the
// response shape and trips bot detection more often.
const searchProductQuery = `
query SearchProductV5Query($params: String!) {
    searchProductV5(params: $params) {
        header {
            totalData
            responseCode
            keywordProcess
            keywordIntention
            componentID
            isQuerySafe
            additionalParams
            backendFilters
            meta {
                dynamicFields
                __typename
            }
            __typename
        }
        data {
            totalDataText
            banner {
                position
                text
                applink
                url
                imageURL
                componentID
                trackingOption
                __typename
            }
            redirection {
                url
                __typename
            }
            related {
                relatedKeyword
                position
                trackingOption
                otherRelated {
                    keyword
                    url
                    applink
                    componentID
                    products {
                        oldID: id
                        id: id_str_auto_
                        name
                        url
                        applink
                        mediaURL {
                            image
                            __typename
                        }
                        shop {
                            oldID: id
                            id: id_str_auto_
                            name
                            city
                            tier
                            __typename
                        }
                        badge {
                            oldID: id
                            id: id_str_auto_
                            title
                            url
                            __typename
                        }
                        price {
                            text
                            number
                            __typename
                        }
                        freeShipping {
                            url
                            __typename
                        }
                        labelGroups {
                            position
                            title
                            type
                            url
                            styles {
                                key
                                value
                                __typename
                            }
                            __typename
                        }
                        rating
                        wishlist
                        ads {
                            id
                            productClickURL
                            productViewURL
                            productWishlistURL
                            tag
                            __typename
                        }
                        meta {
                            oldWarehouseID: warehouseID
                            warehouseID: warehouseID_str_auto_
                            componentID
                            __typename
                        }
                        __typename
                    }
                    __typename
                }
                __typename
            }
            suggestion {
                currentKeyword
                suggestion
                query
                text
                componentID
                trackingOption
                __typename
            }
            ticker {
                oldID: id
                id: id_str_auto_
                text
                query
                applink
                componentID
                trackingOption
                __typename
            }
            violation {
                headerText
                descriptionText
                imageURL
                ctaURL
                ctaApplink
                buttonText
                buttonType
                __typename
            }
            products {
                oldID: id
                id: id_str_auto_
                ttsProductID
                name
                url
                applink
                mediaURL {
                    image
                    image300
                    videoCustom
                    __typename
                }
                shop {
                    oldID: id
                    id: id_str_auto_
                    ttsSellerID
                    name
                    url
                    city
                    tier
                    __typename
                }
                stock {
                    ttsSKUID
                    __typename
                }
                badge {
                    oldID: id
                    id: id_str_auto_
                    title
                    url
                    __typename
                }
                price {
                    text
                    number
                    range
                    original
                    discountPercentage
                    __typename
                }
                freeShipping {
                    url
                    __typename
                }
                labelGroups {
                    position
                    title
                    type
                    url
                    styles {
                        key
                        value
                        __typename
                    }
                    __typename
                }
                labelGroupsVariant {
                    title
                    type
                    typeVariant
                    hexColor
                    __typename
                }
                category {
                    oldID: id
                    id: id_str_auto_
                    name
                    breadcrumb
                    gaKey
                    __typename
                }
                rating
                wishlist
                ads {
                    id
                    productClickURL
                    productViewURL
                    productWishlistURL
                    tag
                    __typename
                }
                meta {
                    oldParentID: parentID
                    parentID: parentID_str_auto_
                    oldWarehouseID: warehouseID
                    warehouseID: warehouseID_str_auto_
                    isImageBlurred
                    isPortrait
                    __typename
                }
                __typename
            }
            __typename
        }
        __typename
    }
}
`
